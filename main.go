package main

import (
	_ "git.blogfront.dev/blogfront/src/devbackend/cmd"
	"git.blogfront.dev/blogfront/src/website"
)

func main() {
	website.WebsiteCommand.Execute()
}
