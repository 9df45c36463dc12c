// Command facemark registers faces and marks attendance by face recognition.
package main

func main() {
	Execute()
}
