// Package transport ハードウェアトランスポートサブシステムのライフサイクル管理を担う
//
// # 責務
// - トランスポートライブラリのルートハンドルの排他的な所有
// - 初期化失敗時のリトライ（バックオフ付き）と縮退動作
// - コンテキスト生成時点のデバイススナップショットの取得と保持
// - 参照カウントされたイベントポンプの開始・停止制御
// - 破棄時のリソース解放順序の保証（スナップショット→ポンプ→ルートハンドル）
//
// # 使い分け
// このパッケージは以下の場合に使用する：
// - 複数のコンシューマーでトランスポートサブシステムを安全に共有したい
// - デバイスハンドルが開いている間だけイベントを処理したい
// - ハードウェア初期化の一時的な失敗を吸収したい
//
// # 仕様
// - Context: ルートハンドルとスナップショットを所有するライフサイクル管理の中心
// - Binding: 下位トランスポートライブラリの呼び出し面（外部実装）
// - Snapshot: 生成時点で固定される不変のデバイス一覧
// - イベントポンプ: コンシューマー数が 0→1 で起動、1→0 で停止する単一のゴルーチン
// - カウンターとポンプの状態は単一のミューテックスで保護される
// - ブロッキングするイベント処理中はロックを保持しない
package transport
