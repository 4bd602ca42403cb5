// Package vrp implements value range analysis on programs in e-SSA form.
//
// We implement the algorithm shown in the paper "Speed And Precision in Range Analysis" by Campos et al. Further
// resources discussing this algorithm are:
// - Scalable and precise range analysis on the interval lattice by Rodrigues
// - A Fast and Low Overhead Technique to Secure Programs Against Integer Overflows by Rodrigues et al
// - https://github.com/vhscampos/range-analysis
//
// A Graph holds one VarNode per integer value and one Operation per instruction that defines one. Conditional
// branches produce BranchFacts; the sigma instructions in the branch's successors turn them into intersections,
// which are either concrete ('x < 10') or symbolic ('x < n'). A symbolic intersection is resolved once the component
// containing its bound has been widened.
//
// The graph is split into strongly connected components, which are solved in topological order. Each component is
// widened to a fixpoint with jump-to-infinity widening, its symbolic intersections are resolved, and it is then
// narrowed, either with Cousot's narrowing or by cropping. The results are propagated to dependent components.
//
// Bounds are arbitrary precision integers. The smallest and largest signed integers of the widest type in the
// program act as -∞ and ∞.
package vrp
