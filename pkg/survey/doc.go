// Package survey holds the in-memory form model a widget instance owns: the
// question structure parsed from a declarative schema, the current answers,
// the interaction mode, the active locale and the completion state.
//
// Schemas follow the familiar page/element layout:
//
//	{"pages": [{"name": "p1", "elements": [{"type": "text", "name": "q1"}]}]}
//
// Root level "elements" or "questions" arrays are accepted as a single
// implicit page. Titles may be plain strings or locale maps such as
// {"default": "Name", "de": "Name (de)"}.
//
// A Model is not safe for concurrent use; it is owned by the loop goroutine.
package survey
