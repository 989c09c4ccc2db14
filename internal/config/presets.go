package config

var Presets = map[string]map[string]*Config{
	"decay": {
		"textbook": {
			System: "decay", Scheme: "forward-euler",
			Params:   map[string]float64{"rate": 1},
			Grid:     GridConfig{Times: []float64{0, 1, 2}},
			Initial:  InitialConfig{Values: []float64{1}},
			Boundary: BoundaryConfig{Kind: "dirichlet"},
		},
		"stiff": {
			System: "decay", Scheme: "backward-euler",
			Params:   map[string]float64{"rate": 50},
			Grid:     GridConfig{Start: 0, End: 1, Steps: 20},
			Initial:  InitialConfig{Values: []float64{1}},
			Boundary: BoundaryConfig{Kind: "dirichlet"},
		},
		"overshoot": {
			System: "decay", Scheme: "forward-euler",
			Params:   map[string]float64{"rate": 1},
			Grid:     GridConfig{Start: 0, End: 50, Steps: 20},
			Initial:  InitialConfig{Values: []float64{1}},
			Boundary: BoundaryConfig{Kind: "dirichlet"},
		},
	},
	"heat": {
		"diffusion": {
			System: "heat", Scheme: "crank-nicolson", Nodes: 32,
			Params:   map[string]float64{"diffusivity": 0.01},
			Grid:     GridConfig{Start: 0, End: 2, Steps: 100},
			Initial:  InitialConfig{Profile: "sine", Amplitude: 1},
			Boundary: BoundaryConfig{Kind: "dirichlet"},
		},
		"insulated": {
			System: "heat", Scheme: "backward-euler", Nodes: 32,
			Params:   map[string]float64{"diffusivity": 0.05},
			Grid:     GridConfig{Start: 0, End: 1, Steps: 50},
			Initial:  InitialConfig{Profile: "step", Amplitude: 1},
			Boundary: BoundaryConfig{Kind: "neumann"},
		},
		"unstable": {
			System: "heat", Scheme: "forward-euler", Nodes: 32,
			Params:   map[string]float64{"diffusivity": 0.1},
			Grid:     GridConfig{Start: 0, End: 0.5, Steps: 50},
			Initial:  InitialConfig{Profile: "hat", Amplitude: 1},
			Boundary: BoundaryConfig{Kind: "dirichlet"},
		},
	},
	"advection": {
		"pulse": {
			System: "advection", Scheme: "crank-nicolson", Nodes: 64,
			Params:   map[string]float64{"speed": 1},
			Grid:     GridConfig{Start: 0, End: 1, Steps: 200},
			Initial:  InitialConfig{Profile: "gaussian", Amplitude: 1},
			Boundary: BoundaryConfig{Kind: "periodic"},
		},
	},
	"burgers": {
		"shock": {
			System: "burgers", Scheme: "backward-euler", Nodes: 64,
			Params:   map[string]float64{"viscosity": 0.01},
			Grid:     GridConfig{Start: 0, End: 0.5, Steps: 100},
			Initial:  InitialConfig{Profile: "sine", Amplitude: 1},
			Boundary: BoundaryConfig{Kind: "dirichlet"},
		},
		"viscous": {
			System: "burgers", Scheme: "crank-nicolson", Nodes: 32,
			Params:   map[string]float64{"viscosity": 0.1},
			Grid:     GridConfig{Start: 0, End: 1, Steps: 50},
			Initial:  InitialConfig{Profile: "gaussian", Amplitude: 1},
			Boundary: BoundaryConfig{Kind: "periodic"},
		},
	},
}

// GetPreset returns a copy of the named preset layered over the defaults,
// or nil if it does not exist.
func GetPreset(system, preset string) *Config {
	systemPresets, ok := Presets[system]
	if !ok {
		return nil
	}
	p, ok := systemPresets[preset]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.System, cfg.Scheme = p.System, p.Scheme
	if p.Nodes > 0 {
		cfg.Nodes = p.Nodes
	}
	for k, v := range p.Params {
		cfg.Params[k] = v
	}
	cfg.Grid = p.Grid
	cfg.Grid.Times = append([]float64(nil), p.Grid.Times...)
	cfg.Initial = p.Initial
	cfg.Initial.Values = append([]float64(nil), p.Initial.Values...)
	cfg.Boundary = p.Boundary
	return cfg
}

func ListPresets(system string) []string {
	systemPresets, ok := Presets[system]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(systemPresets))
	for name := range systemPresets {
		names = append(names, name)
	}
	return names
}
