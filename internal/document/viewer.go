package document

// Zoom bounds and step. Steps are quarter increments, so every reachable
// zoom level is exactly representable and clamping needs no epsilon.
const (
	MinZoom     = 0.5
	MaxZoom     = 2.0
	ZoomStep    = 0.25
	DefaultZoom = 1.0
)

// LoadState tracks a viewer's load lifecycle.
type LoadState int

// Viewer load states. A failed load is terminal: the viewer never retries on
// its own, and only a fresh load (new Viewer) leaves the failed state.
const (
	LoadStateLoading LoadState = iota
	LoadStateReady
	LoadStateFailed
)

func (s LoadState) String() string {
	switch s {
	case LoadStateLoading:
		return "loading"
	case LoadStateReady:
		return "ready"
	case LoadStateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Viewer is the page/zoom state for one loaded document. It is a value type:
// transitions return the next state and never mutate in place. Page is
// 1-based and clamped to [1, NumPages]; zoom is clamped to
// [MinZoom, MaxZoom]. Neither survives a reload.
type Viewer struct {
	err      string
	numPages int
	page     int
	zoom     float64
	state    LoadState
}

// NewViewer returns a viewer in the loading state.
func NewViewer() Viewer {
	return Viewer{
		state: LoadStateLoading,
		page:  1,
		zoom:  DefaultZoom,
	}
}

// State returns the load state.
func (v Viewer) State() LoadState { return v.state }

// Err returns the terminal error message, if the load failed.
func (v Viewer) Err() string { return v.err }

// Page returns the current 1-based page.
func (v Viewer) Page() int { return v.page }

// NumPages returns the document's page count, 0 until ready.
func (v Viewer) NumPages() int { return v.numPages }

// Zoom returns the current zoom scale.
func (v Viewer) Zoom() float64 { return v.zoom }

// Loaded resolves the load with a known page count, resetting page and zoom.
// It only applies while loading; failed stays failed.
func (v Viewer) Loaded(numPages int) Viewer {
	if v.state != LoadStateLoading {
		return v
	}
	if numPages < 1 {
		numPages = 1
	}
	v.state = LoadStateReady
	v.numPages = numPages
	v.page = 1
	v.zoom = DefaultZoom
	return v
}

// Failed resolves the load with a terminal error.
func (v Viewer) Failed(msg string) Viewer {
	if v.state != LoadStateLoading {
		return v
	}
	v.state = LoadStateFailed
	v.err = msg
	return v
}

// SetPage clamps the requested page into [1, NumPages]. Before the document
// is ready there is nothing to page through, so it is a no-op.
func (v Viewer) SetPage(page int) Viewer {
	if v.state != LoadStateReady {
		return v
	}
	v.page = min(max(page, 1), v.numPages)
	return v
}

// NextPage advances one page, stopping at the last.
func (v Viewer) NextPage() Viewer { return v.SetPage(v.page + 1) }

// PrevPage goes back one page, stopping at the first.
func (v Viewer) PrevPage() Viewer { return v.SetPage(v.page - 1) }

// ZoomIn increases zoom one step up to MaxZoom.
func (v Viewer) ZoomIn() Viewer { return v.setZoom(v.zoom + ZoomStep) }

// ZoomOut decreases zoom one step down to MinZoom.
func (v Viewer) ZoomOut() Viewer { return v.setZoom(v.zoom - ZoomStep) }

func (v Viewer) setZoom(zoom float64) Viewer {
	if v.state != LoadStateReady {
		return v
	}
	v.zoom = min(max(zoom, MinZoom), MaxZoom)
	return v
}
