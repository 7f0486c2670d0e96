package utils

//run redis (only needed with DOCUMENT_STORE=redis)
//docker run -p 6379:6379 -d redis

//docx to pdf conversion (only needed with DOCX_CONVERTER=soffice)
//apt-get install -y libreoffice-writer-nogui

//swagger init
//swag init -g cmd/api/main.go --parseDependency --parseInternal --dir ./ --output ./cmd/api/docs
