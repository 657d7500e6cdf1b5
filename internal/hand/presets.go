package hand

// worldScale approximates meters per normalized image unit for a hand held
// about half a meter from a 640x480 webcam.
const worldScale = 0.25

// withWorld fills s.World from s.Image, centered on the middle finger MCP.
func withWorld(s Sample) Sample {
	center := s.Image[MiddleMCP]
	for i, p := range s.Image {
		d := p.Sub(center)
		s.World[i] = Point3D{
			X: d.X * worldScale,
			Y: d.Y * worldScale,
			Z: d.Z * worldScale,
		}
	}
	return s
}

// ThumbsUpSample returns a preset Sample representing a thumbs up gesture.
// The thumb is extended upward while other fingers are curled.
func ThumbsUpSample() Sample {
	s := Sample{
		Handedness: "Right",
		Score:      0.95,
	}

	s.Image[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	// Thumb extended upward (pointing up, Y decreases going up)
	s.Image[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.0}
	s.Image[ThumbMCP] = Point3D{X: 0.58, Y: 0.65, Z: 0.0}
	s.Image[ThumbIP] = Point3D{X: 0.58, Y: 0.50, Z: 0.0}
	s.Image[ThumbTip] = Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	s.Image[IndexMCP] = Point3D{X: 0.55, Y: 0.70, Z: -0.02}
	s.Image[IndexPIP] = Point3D{X: 0.55, Y: 0.68, Z: -0.05}
	s.Image[IndexDIP] = Point3D{X: 0.52, Y: 0.70, Z: -0.04}
	s.Image[IndexTip] = Point3D{X: 0.50, Y: 0.72, Z: -0.02}

	s.Image[MiddleMCP] = Point3D{X: 0.50, Y: 0.68, Z: -0.02}
	s.Image[MiddlePIP] = Point3D{X: 0.50, Y: 0.66, Z: -0.05}
	s.Image[MiddleDIP] = Point3D{X: 0.47, Y: 0.68, Z: -0.04}
	s.Image[MiddleTip] = Point3D{X: 0.45, Y: 0.70, Z: -0.02}

	s.Image[RingMCP] = Point3D{X: 0.45, Y: 0.70, Z: -0.02}
	s.Image[RingPIP] = Point3D{X: 0.45, Y: 0.68, Z: -0.05}
	s.Image[RingDIP] = Point3D{X: 0.42, Y: 0.70, Z: -0.04}
	s.Image[RingTip] = Point3D{X: 0.40, Y: 0.72, Z: -0.02}

	s.Image[PinkyMCP] = Point3D{X: 0.40, Y: 0.72, Z: -0.02}
	s.Image[PinkyPIP] = Point3D{X: 0.40, Y: 0.70, Z: -0.05}
	s.Image[PinkyDIP] = Point3D{X: 0.37, Y: 0.72, Z: -0.04}
	s.Image[PinkyTip] = Point3D{X: 0.35, Y: 0.74, Z: -0.02}

	return withWorld(s)
}

// OpenPalmSample returns a preset Sample of an open palm facing the camera.
// All fingers are extended outward.
func OpenPalmSample() Sample {
	s := Sample{
		Handedness: "Right",
		Score:      0.95,
	}

	s.Image[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	s.Image[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.02}
	s.Image[ThumbMCP] = Point3D{X: 0.62, Y: 0.70, Z: 0.03}
	s.Image[ThumbIP] = Point3D{X: 0.68, Y: 0.65, Z: 0.03}
	s.Image[ThumbTip] = Point3D{X: 0.73, Y: 0.60, Z: 0.03}

	s.Image[IndexMCP] = Point3D{X: 0.55, Y: 0.68, Z: 0.0}
	s.Image[IndexPIP] = Point3D{X: 0.57, Y: 0.55, Z: 0.0}
	s.Image[IndexDIP] = Point3D{X: 0.58, Y: 0.45, Z: 0.0}
	s.Image[IndexTip] = Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	s.Image[MiddleMCP] = Point3D{X: 0.50, Y: 0.66, Z: 0.0}
	s.Image[MiddlePIP] = Point3D{X: 0.50, Y: 0.52, Z: 0.0}
	s.Image[MiddleDIP] = Point3D{X: 0.50, Y: 0.40, Z: 0.0}
	s.Image[MiddleTip] = Point3D{X: 0.50, Y: 0.28, Z: 0.0}

	s.Image[RingMCP] = Point3D{X: 0.45, Y: 0.68, Z: 0.0}
	s.Image[RingPIP] = Point3D{X: 0.43, Y: 0.55, Z: 0.0}
	s.Image[RingDIP] = Point3D{X: 0.42, Y: 0.45, Z: 0.0}
	s.Image[RingTip] = Point3D{X: 0.42, Y: 0.35, Z: 0.0}

	s.Image[PinkyMCP] = Point3D{X: 0.40, Y: 0.70, Z: 0.0}
	s.Image[PinkyPIP] = Point3D{X: 0.37, Y: 0.60, Z: 0.0}
	s.Image[PinkyDIP] = Point3D{X: 0.35, Y: 0.50, Z: 0.0}
	s.Image[PinkyTip] = Point3D{X: 0.34, Y: 0.42, Z: 0.0}

	return withWorld(s)
}

// CollapsedSample returns a degenerate Sample whose palm anchors are collinear,
// as happens when the fingers are fully occluded edge-on to the camera.
func CollapsedSample() Sample {
	s := OpenPalmSample()
	s.Image[IndexMCP] = Point3D{X: 0.5, Y: 0.7, Z: 0}
	s.Image[PinkyMCP] = Point3D{X: 0.5, Y: 0.6, Z: 0}
	s.World[Wrist] = Point3D{X: 0, Y: 0.03, Z: 0}
	s.World[IndexMCP] = Point3D{X: 0, Y: 0.01, Z: 0}
	s.World[PinkyMCP] = Point3D{X: 0, Y: -0.01, Z: 0}
	return s
}
