// Package physics provides reference right-hand sides and boundary
// applicators for marching problems on an extended state.
//
// Each system implements [dynamo.System] on a vector whose first and last
// entries are ghost cells; derivatives are returned at full length with zero
// ghost entries:
//
//   - [Decay]: scalar or component-wise linear decay
//   - [Heat]: 1D diffusion, second-order central Laplacian
//   - [Advection]: 1D transport, first-order upwind
//   - [Burgers]: viscous Burgers equation (nonlinear)
//
// Boundaries implement [dynamo.Boundary] by writing the two ghost cells:
// [Dirichlet], [Neumann] and [Periodic]. [Counting] wraps any boundary and
// records how many rows it has touched.
//
// Systems and boundaries also implement [dynamo.Configurable] so the CLI can
// set their parameters by name.
package physics
