package version

// Version はアプリケーションのバージョン
const Version = "0.2.0"
