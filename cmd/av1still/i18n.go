// Package main provides localization for the av1still CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Output":   "出力先",
		"Encoding": "エンコード",
		"Preset":   "プリセット",
		"Logging":  "ログ",

		// Root command
		"Encode still images as AV1 bitstreams": "静止画をAV1ビットストリームにエンコード",
		"Interrupted, shutting down...":         "中断されました。終了します...",
		"Error: %v":                             "エラー: %v",

		// Commands
		"Encode an image file":                 "画像ファイルをエンコード",
		"Encode many image files concurrently": "複数の画像ファイルを並行してエンコード",
		"Encode a generated test pattern":      "生成したテストパターンをエンコード",
		"Describe an OBU file":                 "OBUファイルの内容を表示",

		// Encoding flags
		"YAML configuration file":                   "YAML設定ファイル",
		"Compression level (0-63, 0 is lossless)":   "圧縮レベル（0-63、0は可逆）",
		"Compression speed (0-8, higher is faster)": "圧縮速度（0-8、大きいほど高速）",
		"Number of threads (0-64, 0 for all cores)": "スレッド数（0-64、0は全コア）",
		"Maximum image dimensions (w:h)":            "最大画像サイズ（w:h）",

		// Preset flags
		"Lossless compression (alias for -q 0)":       "可逆圧縮（-q 0 の別名）",
		"Slowest compression method (alias for -s 0)": "最も遅い圧縮方式（-s 0 の別名）",
		"Fastest compression method (alias for -s 8)": "最も速い圧縮方式（-s 8 の別名）",

		// Output flags
		"Output OBU file path, - for stdout (required)":        "出力OBUファイルパス、- で標準出力（必須）",
		"Output directory (required)":                          "出力ディレクトリ（必須）",
		"Number of images encoded at once (0 for one per CPU)": "同時にエンコードする画像数（0はCPUごとに1つ）",
		"Decode the result and check its dimensions":           "結果をデコードしてサイズを確認",
		"Pattern width":                   "パターンの幅",
		"Pattern height":                  "パターンの高さ",
		"Keep outputs that already exist": "既存の出力を残す",
		"Print the av1C box in hex":       "av1Cボックスを16進数で表示",

		// Logging flags
		"Log level (debug, info, warn, error)": "ログレベル（debug, info, warn, error）",
		"Suppress all log output":              "すべてのログ出力を抑制",

		// Results
		"%s -> %s (skipped)":                                          "%s -> %s (スキップ)",
		"%s -> %s (%dx%d, %d bytes)":                                  "%s -> %s (%dx%d, %d バイト)",
		"profile %d, level %d, tier %d, %dx%d":                        "プロファイル %d, レベル %d, ティア %d, %dx%d",
		"still picture: %t, reduced header: %t, operating points: %d": "静止画: %t, 簡略ヘッダ: %t, オペレーティングポイント: %d",

		// Errors
		"can't use both --best and --fast":   "--best と --fast は同時に指定できません",
		"expected exactly one source image":  "入力画像を1つだけ指定してください",
		"expected at least one source image": "入力画像を1つ以上指定してください",
		"expected exactly one OBU file":      "OBUファイルを1つだけ指定してください",
		"invalid pattern size %dx%d":         "不正なパターンサイズ %dx%d",
	})
}
