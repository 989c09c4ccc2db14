// Package dynamo provides the core primitives for marching a discretized
// differential system through a time grid.
//
// The package defines the data model shared by every scheme:
//
//   - [State]: a vector of unknowns; an extended state carries one ghost
//     cell on each side of the physical unknowns
//   - [Trajectory]: the T×(N+2) matrix of extended states, one row per grid time
//   - [System]: the right-hand-side evaluator dX/dt = f(X)
//   - [Boundary]: the in-place ghost-cell applicator
//   - [RootFinder]: the nonlinear solver used by implicit schemes
//
// # Example
//
//	exec, _ := integrators.Select(integrators.CrankNicolson)
//	traj, err := exec.Integrate(ctx, physics.NewHeat(0.1, dx), phi0, times, physics.Dirichlet{})
//
// # Thread Safety
//
// A Trajectory is owned by the Integrate call that allocates it until that
// call returns. Rows are handed to the boundary applicator one at a time and
// must not be retained by it.
package dynamo
