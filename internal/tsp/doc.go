// Package tsp holds the travelling-salesman domain types shared by the solvers:
// validated distance matrices, tours as city permutations, neighborhood rules
// that perturb a tour, and the JSON instance format.
//
// A DistanceMatrix is immutable once built and may be read by several solver
// runs at the same time. Tours and neighborhoods never mutate their inputs;
// every perturbation returns a fresh Tour.
package tsp
