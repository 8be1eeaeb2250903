// Package dashboard serves the workspace over HTTP: project listings with classification and
// annotations, file browsing, and the publish, init, editor and sweep operations as JSON
// endpoints behind a small embedded page.
package dashboard
