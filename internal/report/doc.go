// Package report renders analysis results for people: an annotated overlay of
// the analyzed slice, a bar chart of fiducial spacings and an HTML trend page
// of stored runs.
//
// Overlays and plots are returned as base64 PNG results, the same shape the
// crop tool uses, so MCP clients can display them inline.
package report
