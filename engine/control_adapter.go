package engine

// controlAdapter implements control.DataSource by dispatching every call
// into the event loop via Env.DispatchWait, so the control port's
// per-connection goroutines never touch AppState directly (spec §5: C9's
// handler runs inline within the loop's control-port dispatch turn; §9:
// AppState is serialized by exactly one logical writer). If the router is
// already shutting down, DispatchWait's context is done and these fall
// back to harmless empty/zero values rather than blocking.
type controlAdapter struct {
	env *Env
}

func (a *controlAdapter) NeighborLines() []string {
	v, err := a.env.DispatchWait(func(s *AppState) (any, error) {
		return s.neighborLines(), nil
	})
	if err != nil {
		return nil
	}
	return v.([]string)
}

func (a *controlAdapter) RoutingTableLines() []string {
	v, err := a.env.DispatchWait(func(s *AppState) (any, error) {
		return s.routingTableLines(), nil
	})
	if err != nil {
		return nil
	}
	return v.([]string)
}

func (a *controlAdapter) SetEnabled(enabled bool) {
	_, _ = a.env.DispatchWait(func(s *AppState) (any, error) {
		s.setEnabled(enabled)
		return nil, nil
	})
}

func (a *controlAdapter) Enabled() bool {
	v, err := a.env.DispatchWait(func(s *AppState) (any, error) {
		return s.enabled(), nil
	})
	if err != nil {
		return false
	}
	return v.(bool)
}
