// Package scene holds the host-side scene graph that boxes are extracted
// from. A scene is a tree of cubes, groups, locators and meshes; only cubes
// take part in overlap detection, and Flatten turns the tree into the flat
// box list the resolver works on.
package scene
