package dispatch

import (
	"fmt"

	"github.com/desertthunder/strum/internal/models"
	"github.com/desertthunder/strum/internal/shared"
)

// Route names the adapter an intent executes against.
type Route int

const (
	// RoutePure mutates state only, with no adapter call.
	RoutePure Route = iota
	// RouteRemote executes against the Web API client.
	RouteRemote
	// RouteLocal executes against the local audio engine.
	RouteLocal
)

// String renders the route for logs.
func (r Route) String() string {
	switch r {
	case RouteRemote:
		return "remote"
	case RouteLocal:
		return "local"
	default:
		return "pure"
	}
}

// route decides where an intent executes given the active playback target.
//
// Pure function: same target and class always yield the same route. Control
// intents follow the target; library reads and device listing are always
// remote; queue-advance and preload only exist for the local engine and are
// rejected as stale when the target has moved back to remote.
func route(target models.Target, class Class) (Route, error) {
	switch class {
	case ClassFetchDevices, ClassFetchLibrary, ClassSearch:
		return RouteRemote, nil

	case ClassSwitchTarget:
		return RoutePure, nil

	case ClassRefreshPlayback:
		// Local playback reports through engine events, not polls.
		if target.Kind == models.TargetLocal {
			return RoutePure, nil
		}
		return RouteRemote, nil

	case ClassShuffle, ClassRepeat:
		// The local queue applies these flags itself at advance time.
		if target.Kind == models.TargetLocal {
			return RoutePure, nil
		}
		return RouteRemote, nil

	case ClassAdvanceQueue, ClassPreloadNext, ClassSyncLocal:
		if target.Kind != models.TargetLocal {
			return 0, fmt.Errorf("%w: %s intent with remote target", shared.ErrRoutingInvalid, class)
		}
		return RouteLocal, nil
	}

	if playbackControl(class) {
		if target.Kind == models.TargetLocal {
			return RouteLocal, nil
		}
		return RouteRemote, nil
	}

	return 0, fmt.Errorf("%w: unroutable intent class %q", shared.ErrRoutingInvalid, class)
}
