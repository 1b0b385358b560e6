// Package pinn assembles the hybrid cumulative-damage sequence models.
//
// A model is a per-step damage-rate graph (PhysicsGraph or LearnedGraph)
// wrapped in a CumulativeDamageCell and driven across the time axis by RNN.
// The physics graph chains frozen table lookups (kappa, etac, aSKF) and an
// SN-curve; the learned graph maps the step vector through a feed-forward
// sub-model and rescales its unit output onto a fixed damage-rate range.
//
// Every step receives the feature vector of that step with the current
// damage state appended as its last element, so feature index sets address a
// vector of width features+1.
package pinn
