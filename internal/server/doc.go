// Package server accepts TCP connections and turns the byte stream of each
// one into commands on the shared queue.
//
// Every connection is served by its own goroutine that reads a fixed-size
// header, then the data block the header announces, and pushes the decoded
// command. A malformed header is dropped and reading continues; an I/O error
// ends the connection. Nothing a client sends can stop the server.
package server
