// Package vtk reads and writes VTK XML RectilinearGrid documents (.vtr).
//
// A document describes one piece of a structured grid: per-axis coordinate
// locations and any number of named point-data arrays. Arrays travel as
// text, as base64 blocks inside their element, or as raw or base64 blocks
// in a trailing appended section addressed by offset.
//
// Writing is done in a fixed sequence (header, geometry, arrays, appended
// payload) by Writer. Every offset is computed before the first byte is
// written. Parsing is lazy for point data: arrays are decoded on Recover.
package vtk
