// Package viewer wires the catalog, model sequencer, selection and render loop
// into one controller. All of its state lives in State; nothing is global.
package viewer

import (
	"github.com/Faultbox/matview/internal/catalog"
	"github.com/Faultbox/matview/internal/engine/camera"
	"github.com/Faultbox/matview/internal/engine/lighting"
	"github.com/Faultbox/matview/internal/engine/scene"
)

// State is everything the viewer mutates. It is owned by the main thread.
type State struct {
	Scene     *scene.Scene
	Camera    *camera.Perspective
	Controls  *camera.OrbitControls
	Rig       *lighting.Rig
	Catalog   *catalog.Catalog // nil until loaded, and after a failed fetch
	Overrides *catalog.Overrides
	Selection *Selection
	Models    []*scene.Model
	Queue     *ModelQueue

	CatalogFailed bool
	ModelsReady   bool
	LoopStarted   bool

	Width, Height int
}
