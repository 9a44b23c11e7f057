// The groverlab command runs amplitude-amplified search experiments,
// compares them against the classical baseline, and drives resource
// estimation batches.
package main

func main() {
	Execute()
}
