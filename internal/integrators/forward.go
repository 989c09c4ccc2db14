package integrators

import "github.com/san-kum/timemarch/internal/dynamo"

type forwardEuler struct {
	eval *evaluator
}

func (s *forwardEuler) advance(prev, next dynamo.State, dt float64) error {
	dx, err := s.eval.derive(prev)
	if err != nil {
		return err
	}
	for j := 1; j < len(prev)-1; j++ {
		next[j] = prev[j] + dt*dx[j]
	}
	return nil
}
