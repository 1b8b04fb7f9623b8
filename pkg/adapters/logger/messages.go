package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Command level messages (info)
		"Encoded %s (%dx%d) to %s: %d bytes":                "%s (%dx%d) を %s にエンコードしました: %d バイト",
		"Encoding %d files into %s":                         "%d 個のファイルを %s にエンコード中",
		"Verified the bitstream with the reference decoder": "参照デコーダでビットストリームを検証しました",

		// Still image encoder
		"Encoding %dx%d image (threads %d, speed %d, quality %d)": "%dx%d の画像をエンコード中 (スレッド %d, 速度 %d, 品質 %d)",

		// Two-pass encoder
		"Collecting statistics for %dx%d frame":       "%dx%d フレームの統計を収集中",
		"First pass produced %d bytes of statistics":  "1パス目で %d バイトの統計を生成しました",
		"Last pass produced %d bytes":                 "最終パスで %d バイトを生成しました",
		"Set %s to %d":                                "%s を %d に設定",
		"Drained %d packets after %s (%d bytes kept)": "%[2]s の後に %[1]d 個のパケットを取り出しました (%[3]d バイトを保持)",

		// libaom engine
		"Initialized %s pass encoder for %dx%d (%d threads, %d bytes of statistics)": "%s パスのエンコーダを %dx%d で初期化しました (スレッド %d, 統計 %d バイト)",

		// Batch
		"Skipped %s: %s already exists":     "%s をスキップ: %s は既に存在します",
		"Encoding %d files with %d workers": "%d 個のファイルを %d ワーカーでエンコード中",
	})
}
