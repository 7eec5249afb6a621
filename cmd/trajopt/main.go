// Command trajopt designs interplanetary transfers with a genetic algorithm.
package main

func main() {
	Execute()
}
