// Package descriptor defines the face descriptor type and the distance
// metric used to compare descriptors. A descriptor is a fixed-length
// embedding vector produced in the browser by face-api.js; descriptors are
// compared by Euclidean distance rather than exact equality.
package descriptor

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/kozaktomas/face-gate/internal/constants"
)

// Descriptor is an ordered fixed-dimension face embedding vector.
type Descriptor []float32

// EuclideanDistance computes the Euclidean distance between two descriptors.
// Returns +Inf when the lengths differ or the vectors are empty, so that a
// mismatched candidate can never be selected as a match.
func EuclideanDistance(a, b Descriptor) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}

	return math.Sqrt(sum)
}

// ParseJSON decodes a JSON-encoded array of floats into a Descriptor.
// It rejects anything that is not a plain numeric array.
func ParseJSON(data []byte) (Descriptor, error) {
	var values []float32
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("descriptor must be a numeric array: %w", err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("descriptor must not be empty")
	}
	return Descriptor(values), nil
}

// MarshalText encodes a descriptor back to its stored JSON form.
func (d Descriptor) MarshalText() ([]byte, error) {
	data, err := json.Marshal([]float32(d))
	if err != nil {
		return nil, fmt.Errorf("encoding descriptor: %w", err)
	}
	return data, nil
}

// ValidDim reports whether the descriptor has the system-wide dimensionality.
// A descriptor with any other length is still scannable (it just never
// matches), but enrollment requires the exact dimension.
func (d Descriptor) ValidDim() bool {
	return len(d) == constants.DescriptorDim
}
