package layout_test

import (
	"fmt"

	"github.com/matzehuels/lightbox/pkg/catalog"
	"github.com/matzehuels/lightbox/pkg/layout"
)

func ExamplePack() {
	images := []*catalog.Image{
		{ID: "a", Width: 400, Height: 300},
		{ID: "b", Width: 600, Height: 300},
		{ID: "c", Width: 300, Height: 300},
		{ID: "d", Width: 1200, Height: 200},
	}
	res, err := layout.Pack(images, 0, 1200)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, row := range res.Rows {
		fmt.Printf("%d images, height %.1f, committed %v\n", row.Len(), row.Height, row.Committed)
	}
	// Output:
	// 3 images, height 276.9, committed true
	// 1 images, height 200.0, committed false
}
