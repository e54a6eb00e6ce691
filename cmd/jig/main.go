// Command jig solves, validates, renders and serves composite pose scenes.
package main

func main() {
	Execute()
}
