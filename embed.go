package folio

import "embed"

// EmbeddedAssets contains the static assets shipped with the server:
// folio.js, blog.css and favicon.svg.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
