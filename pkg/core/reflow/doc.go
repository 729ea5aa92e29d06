// Package reflow relaxes a packed circle layout so that it fills the canvas,
// stays overlap-free and stays close to where it was drawn last time.
//
// Each sibling group runs a fixed-length force relaxation. Nodes start at
// their anchor (their previous position, when known) and are pulled by four
// additive forces per step:
//
//  1. a weak pull to the canvas center for groups near the top of the tree;
//  2. a pull to the parent's center, once the parent has settled;
//  3. a pull to the anchor, or a weaker pull to the group center for nodes
//     without one;
//  4. a collision constraint keeping siblings apart by their radii plus a
//     depth-dependent gap.
//
// After every step centers are clamped to the canvas and, inside a parent,
// into the parent's circle. When a group has settled, each folder's
// displacement is applied rigidly to its subtree and folders with enough
// children are relaxed in turn, anchored to their children's previous
// positions carried along with the folder's own drift.
//
// A node whose previous position is known, whose radius is unchanged apart
// from the global rescale of the packing and which still fits its container
// without overlapping another such node is held: it keeps its previous
// position and acts as a fixed obstacle for the rest of its group. Feeding a
// pass its own context therefore reproduces it exactly, and a local edit
// only moves the nodes it touches.
//
// A final projection pass removes any residual overlap left by the bounded
// number of steps, moving held nodes only when nothing else resolves the
// group. A nested group that still overlaps falls back to its packed
// arrangement. Every force is deterministic: given the same packed tree and
// the same previous context, Reflow produces the same result.
package reflow
