// Package server runs component trees over WebSocket sessions.
//
// Each session owns the full rendering pipeline for one connected client: a
// scheduler, an in-memory document as the authoritative copy of the client's
// DOM, and a recorder whose operation log becomes the patch frames shipped
// down the wire. Client events come up as JSON frames, get dispatched into
// the session's document, and the resulting flush is drained back out as one
// patch frame.
//
//	srv := server.New(app, server.DefaultConfig())
//	log.Fatal(srv.Run())
//
// Plain HTTP requests get a server-rendered page from a throwaway document;
// the WebSocket endpoint upgrades the page into a live session.
package server
