// Package render defines how a widget instance is shown: a Mount is the host
// element an instance renders into, a View keeps a Mount in step with a
// survey model, and a Renderer builds views of one kind. Renderers are looked
// up by name through a Registry.
package render
