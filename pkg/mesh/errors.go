package mesh

import "github.com/pkg/errors"

// Mesh errors.
var (
	ErrNotPreallocated = errors.New("blob: data has not been preallocated")
	ErrColumnMismatch  = errors.New("column count mismatch")
	ErrFieldNotFound   = errors.New("extra field not found")
	ErrFieldType       = errors.New("extra field has a different type")
	ErrInvalidPose     = errors.New("invalid pose string: want \"x y z qx qy qz qw\"")
	ErrIndirection     = errors.New("inverse indirection does not match the original mesh")
	ErrNoNormals       = errors.New("mesh has no vertex normals")
	ErrEmptyMesh       = errors.New("mesh has no vertices")
	ErrMeshInvalid     = errors.New("mesh failed sanity check")
)
