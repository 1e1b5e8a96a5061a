// Package formats provides codecs for mesh file formats and the TGA
// textures that often ship with them.
//
// Decoders produce plain data with zero-based indices; turning it into a
// mesh is left to the caller. Importing the package registers TGA with the
// image package.
package formats
