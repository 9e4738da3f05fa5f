package garment

import (
	"fmt"

	"github.com/ayusman/vestir/internal/detector"
	"github.com/ayusman/vestir/internal/retarget"
)

// Category says which part of the body a garment covers.
type Category string

const (
	UpperBody Category = "upper_body"
	LowerBody Category = "lower_body"
	FullBody  Category = "full_body"
)

// ParseCategory validates a category name.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case UpperBody, LowerBody, FullBody:
		return c, nil
	}
	return "", fmt.Errorf("unknown garment category %q", s)
}

// CategoryConfig holds the landmarks and tuning used to place a category.
type CategoryConfig struct {
	// AnchorIndices are averaged to position the garment.
	AnchorIndices []int
	// ScaleIndices measure body width and the roll of the garment.
	ScaleIndices [2]int
	// WidthFactor converts body width into garment bounding-box width.
	WidthFactor float64
	// SkinnedWidthFactor converts body width into the distance between the
	// rig's matching joints.
	SkinnedWidthFactor float64
	// MinLandmarks is the shortest pose this category can use.
	MinLandmarks int
	// Limbs are articulated on skinned garments.
	Limbs retarget.LimbSet
}

// DefaultCategories returns the built-in category table.
func DefaultCategories() map[Category]CategoryConfig {
	return map[Category]CategoryConfig{
		UpperBody: {
			AnchorIndices: []int{
				detector.PoseLeftShoulder, detector.PoseRightShoulder,
				detector.PoseLeftHip, detector.PoseRightHip,
			},
			ScaleIndices:       [2]int{detector.PoseLeftShoulder, detector.PoseRightShoulder},
			WidthFactor:        1.15,
			SkinnedWidthFactor: 1.0,
			MinLandmarks:       detector.PoseRightHip + 1,
			Limbs:              retarget.Arms,
		},
		LowerBody: {
			AnchorIndices: []int{
				detector.PoseLeftHip, detector.PoseRightHip,
				detector.PoseLeftKnee, detector.PoseRightKnee,
			},
			ScaleIndices:       [2]int{detector.PoseLeftHip, detector.PoseRightHip},
			WidthFactor:        1.6,
			SkinnedWidthFactor: 1.0,
			MinLandmarks:       detector.PoseRightKnee + 1,
			Limbs:              retarget.Legs,
		},
		FullBody: {
			AnchorIndices: []int{
				detector.PoseLeftShoulder, detector.PoseRightShoulder,
				detector.PoseLeftHip, detector.PoseRightHip,
				detector.PoseLeftAnkle, detector.PoseRightAnkle,
			},
			ScaleIndices:       [2]int{detector.PoseLeftShoulder, detector.PoseRightShoulder},
			WidthFactor:        1.2,
			SkinnedWidthFactor: 1.0,
			MinLandmarks:       detector.NumPoseLandmarks,
			Limbs:              retarget.AllLimbs,
		},
	}
}
