// Package analysis provides post-processing for time-marching runs.
//
//   - [Refine]: step-refinement study reporting the observed order of accuracy
//   - [Spectrum]: Fourier magnitudes of a profile
//   - [HighFrequencyFraction]: share of energy in the upper wavenumbers
//
// # Spurious Oscillation
//
// Crank-Nicolson is not L-stable and rings on non-smooth data when dt is
// large relative to dx^2. The ringing is odd-even in space, so it shows up
// as energy near the Nyquist wavenumber:
//
//	if analysis.HighFrequencyFraction(traj.Final().Interior()) > 0.5 {
//	    // Profile is dominated by grid-scale oscillation
//	}
package analysis
