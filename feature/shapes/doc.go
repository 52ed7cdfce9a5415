// Package shapes holds the shape model, the in-memory shape registry and the
// shapes bootstrap area.
//
// A shape is the schema of an item: its type (folder, product, document) and the
// ordered list of components it carries. Products additionally declare variant
// components. The registry is read by the component compiler and the item
// engine; the area makes sure every shape named by the spec exists remotely.
package shapes
