// Package components compiles spec component values into API component inputs.
//
// Compilation is driven by the component definitions of the target shape. An
// absent value produces no input, a null value produces an explicit clear.
// Item relations are compiled empty and wired in a second pass once every
// referenced item exists.
package components
