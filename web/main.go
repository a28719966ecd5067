package main

import (
	"flag"
	"log"
	"os"

	"github.com/df07/go-geodesic-raytracer/pkg/scene"
	"github.com/df07/go-geodesic-raytracer/web/server"
)

func main() {
	port := flag.Int("port", 8080, "HTTP port for the lensing viewer and API")
	static := flag.String("static", "static/", "Directory holding the front-end files")
	flag.Parse()

	scenes, err := scene.ListFileScenes()
	if err != nil {
		log.Printf("Scene files unavailable: %v", err)
	}
	log.Printf("Black hole lensing server: %d built-in scenes, %d scene files",
		len(scene.ListBuiltinScenes()), len(scenes))
	log.Printf("Open http://localhost:%d to orbit the camera", *port)

	if err := server.NewServer(*port).WithStaticDir(*static).Start(); err != nil {
		log.Printf("Server stopped: %v", err)
		os.Exit(1)
	}
}
