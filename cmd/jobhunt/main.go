// Command jobhunt analyzes a resume, searches for matching jobs and suggests
// resume improvements for the job the user picks.
package main

func main() {
	Execute()
}
