// Command stickyview mounts views declared in YAML onto an HTML document and
// lays them out.
package main

func main() {
	Execute()
}
