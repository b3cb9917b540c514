// Package server hosts the Fiber HTTP service: request-id middleware, panic
// recovery and the catch-all route that hands page requests to the regen
// handler. Diagnostics endpoints under /-/ live in the routes subpackage and
// bypass the page handler. Keep exports narrow and accept explicit
// dependencies so tests can inject recorders in place of the regen handler.
package server
