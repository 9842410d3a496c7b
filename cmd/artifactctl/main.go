// Command artifactctl inspects forensic artifact files: NTFS volumes, ESE
// databases, Outlook OST stores, Shell Link (.lnk) files and jumplists, and
// Task Scheduler job definitions.
package main

func main() {
	execute()
}
