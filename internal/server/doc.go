// Package server は、トランスポートコンテキストを公開するHTTP APIを管理します。
//
// このパッケージは、HTTPサーバーの起動、ルーティング、
// デバイススナップショットとイベントポンプ状態の公開を担当します。
//
// 責務:
//   - HTTPサーバーの起動と管理
//   - デバイス一覧・個別デバイス情報の提供
//   - トランスポートコンテキストの状態公開
//   - サーバー稼働中のイベント配信要求の保持
//   - グレースフルシャットダウン
//
// 仕様:
//   - ルーティングにはginを使用
//   - サーバーはコンシューマーとして StartEventHandler / StopEventHandler を
//     ちょうど1回ずつ対で呼び出す
//   - シグナル（SIGINT/SIGTERM）とコンテキストキャンセルの両方に対応
package server
