// Package live pushes server state into mounted client components over
// WebSocket.
//
// Each hydrated component subscribes with its host element id; the
// server calls Hub.PushProps to ship an updated prop set, and the
// client patches the running Vue instance. The same channel carries
// the development messages (full reload, build error overlay) used by
// the dev server.
package live
