package loader

import "image"

// asset is what a backend decodes from one file: an image or a set of meshes.
type asset struct {
	Image  image.Image
	Meshes []importedMesh
}

// loaderBackend decodes one family of file formats. Concrete implementations handle the
// format details; the loader owns caching, path handling and conversion to engine types.
type loaderBackend interface {
	// Extensions lists the lower-case file extensions, with the dot, the backend reads.
	//
	// Returns:
	//   - []string: the extensions
	Extensions() []string

	// Decode decodes the bytes of one file.
	//
	// Parameters:
	//   - data: the file contents
	//   - baseDir: the directory external references resolve against
	//
	// Returns:
	//   - *asset: the decoded asset
	//   - error: error if decoding fails
	Decode(data []byte, baseDir string) (*asset, error)
}
