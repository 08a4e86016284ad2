package server

import _ "embed"

// indexPage is the single-page Leaflet dashboard. It fetches /api/overlay
// and draws the features in response order so stacking matches the pass.
//
//go:embed index.html
var indexPage []byte
