// Package backend implements the collaborators Homedeck consumes:
// the room, device, user, and home REST clients plus the bearer-token
// session they share.
//
// Two interchangeable implementations exist. Client talks to the remote
// smart-home backend over HTTP and maps 400/404/5xx statuses and
// transport failures onto a fixed set of user-facing error messages.
// LocalBackend keeps everything in memory for demo panels and tests.
// The stores depend only on the narrow collaborator interfaces they
// declare, so either implementation can be wired in.
package backend
