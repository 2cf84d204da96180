// Command zonys manages FreeBSD jail-backed zones.
package main

func main() {
	Execute()
}
