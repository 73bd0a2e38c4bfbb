// Command wbsim runs Wishbone bus scenarios.
package main

func main() {
	Execute()
}
