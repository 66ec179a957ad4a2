package gal

import "testing"

func TestStateWordPackDeterministic(t *testing.T) {
	s := StateWord{Cull: CullModeBack, DepthTest: true, DepthCompare: DepthCompareGreater, DepthWrite: true}
	if s.Pack() != s.Pack() {
		t.Fatal("Pack should be deterministic for identical state words")
	}
	other := s
	other.Cull = CullModeFront
	if s.Pack() == other.Pack() {
		t.Fatal("different cull modes should not collide in the packed state")
	}
}

func TestDepthCompareFoldsDepthTestDisabled(t *testing.T) {
	s := StateWord{DepthTest: false, DepthCompare: DepthCompareGreater}
	enabled := s
	enabled.DepthTest = true
	if s.WGPUDepthCompare() == enabled.WGPUDepthCompare() {
		t.Fatal("disabling depth test should change the effective comparison function")
	}
}
