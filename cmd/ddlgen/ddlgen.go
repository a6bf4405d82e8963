// cmd/ddlgen/main.go
package main

import (
	"fmt"
	"os"
	"path/filepath"

	// ドメインごとに import（アルファベット順）
	dropdom "solstyle/internal/domain/drop"
	purchasedom "solstyle/internal/domain/purchase"
)

func mustWrite(path string, content string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		panic(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		panic(err)
	}
}

func main() {
	outDir := filepath.Join("internal", "infra", "database", "migrations")

	// 出力ファイル（アルファベット順）
	outDrop := filepath.Join(outDir, "init_drop.sql")
	outPurchase := filepath.Join(outDir, "init_purchase.sql")

	mustWrite(outDrop, dropdom.DropsTableDDL)
	mustWrite(outPurchase, purchasedom.PurchasesTableDDL)

	fmt.Println("DDL files generated:")
	fmt.Println(" -", outDrop)
	fmt.Println(" -", outPurchase)
}
