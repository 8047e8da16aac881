// Package bundle resolves the built SSR bundle to a local file before
// the worker pool starts.
//
// A bundle reference is either a filesystem path or an artifact
// reference of the form s3://bucket/key, which is downloaded into a
// local cache directory. Resolution happens once at startup;
// misconfigured references fail there, not mid-request.
package bundle
