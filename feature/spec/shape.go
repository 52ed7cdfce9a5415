package spec

import "tenant-bootstrapper/feature/shapes"

// ShapeDef is a shape as written in a spec.
type ShapeDef = shapes.Shape
